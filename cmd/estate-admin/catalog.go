package main

import (
	"fmt"
	"strconv"

	"github.com/estatehub/admin-gateway/internal/catalog"
	"github.com/estatehub/admin-gateway/internal/models"
	"github.com/spf13/cobra"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", arg)
	}
	return id, nil
}

func (c *cli) companiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "companies",
		Aliases: []string{"company"},
		Short:   "Manage developer companies",
	}
	var input models.CompanyInput
	inputFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&input.Slug, "slug", "", "URL friendly identifier")
		cmd.Flags().StringVar(&input.Name, "name", "", "Display name")
		cmd.Flags().StringVar(&input.Logo, "logo", "", "Logo file name or URL")
		cmd.Flags().StringVar(&input.Description, "description", "", "Description")
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List all companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			companies, err := application.Catalog.ListCompanies(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), companies)
		},
	}
	get := &cobra.Command{
		Use:   "get <slug>",
		Short: "Show a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			company, err := application.Catalog.GetCompany(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), company)
		},
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			company, err := application.Catalog.CreateCompany(cmd.Context(), input)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), company)
		},
	}
	inputFlags(create)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			company, err := application.Catalog.UpdateCompany(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), company)
		},
	}
	inputFlags(update)
	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company with its projects and units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			return application.Catalog.DeleteCompany(cmd.Context(), id)
		},
	}
	cmd.AddCommand(list, get, create, update, remove)
	return cmd
}

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}
	var filter models.ProjectFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			projects, err := application.Catalog.ListProjects(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), projects)
		},
	}
	list.Flags().StringVar(&filter.CompanySlug, "company", "", "Only projects of this company (slug)")
	list.Flags().StringVar(&filter.Status, "status", "", "Only projects with this status")

	var input models.ProjectInput
	inputFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&input.CompanySlug, "company", "", "Slug of the owning company")
		cmd.Flags().StringVar(&input.Slug, "slug", "", "URL friendly identifier")
		cmd.Flags().StringVar(&input.Title, "title", "", "Title")
		cmd.Flags().StringVar(&input.Location, "location", "", "Location")
		cmd.Flags().StringVar(&input.Description, "description", "", "Description")
	}
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			project, err := application.Catalog.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), project)
		},
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			project, err := application.Catalog.CreateProject(cmd.Context(), input)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), project)
		},
	}
	inputFlags(create)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			project, err := application.Catalog.UpdateProject(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), project)
		},
	}
	inputFlags(update)
	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with its units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			return application.Catalog.DeleteProject(cmd.Context(), id)
		},
	}
	upload := &cobra.Command{
		Use:   "upload <id> <image>...",
		Short: "Add images to a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			images, err := readFiles("images", args[1:])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			names, err := followUpload(cmd, application.Catalog.UploadProjectImages(cmd.Context(), id, images))
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), names)
		},
	}
	cmd.AddCommand(list, get, create, update, remove, upload)
	return cmd
}

func (c *cli) unitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "units",
		Aliases: []string{"unit"},
		Short:   "Manage units",
	}
	var filter models.UnitFilter
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List units, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Status = models.UnitStatus(status)
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			page, err := application.Catalog.ListUnits(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), page)
		},
	}
	list.Flags().IntVar(&filter.ProjectID, "project", 0, "Only units of this project")
	list.Flags().Float64Var(&filter.MinSqm, "min-sqm", 0, "Minimum area in square meters")
	list.Flags().IntVar(&filter.MaxPrice, "max-price", 0, "Maximum total price")
	list.Flags().StringVar(&filter.Floor, "floor", "", "Floor")
	list.Flags().StringVar(&status, "status", "", "available, reserved or sold")
	list.Flags().IntVar(&filter.Bedrooms, "bedrooms", 0, "Number of bedrooms")
	list.Flags().IntVar(&filter.Bathrooms, "bathrooms", 0, "Number of bathrooms")
	list.Flags().IntVar(&filter.Page, "page", 0, "Page number")
	list.Flags().IntVar(&filter.Limit, "limit", 0, "Page size")

	var input models.UnitInput
	var inputStatus string
	inputFlags := func(cmd *cobra.Command) {
		cmd.Flags().IntVar(&input.ProjectID, "project", 0, "Owning project")
		cmd.Flags().StringVar(&input.Code, "code", "", "Unit code")
		cmd.Flags().Float64Var(&input.Sqm, "sqm", 0, "Area in square meters")
		cmd.Flags().IntVar(&input.PricePerSqm, "price-per-sqm", 0, "Price per square meter")
		cmd.Flags().StringVar(&input.Floor, "floor", "", "Floor")
		cmd.Flags().StringVar(&inputStatus, "status", "", "available, reserved or sold")
		cmd.Flags().IntVar(&input.Bedrooms, "bedrooms", 0, "Number of bedrooms")
		cmd.Flags().IntVar(&input.Bathrooms, "bathrooms", 0, "Number of bathrooms")
	}
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			unit, err := application.Catalog.GetUnit(cmd.Context(), id)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), unit)
		},
	}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Status = models.UnitStatus(inputStatus)
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			unit, err := application.Catalog.CreateUnit(cmd.Context(), input)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), unit)
		},
	}
	inputFlags(create)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the fields given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			input.Status = models.UnitStatus(inputStatus)
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			unit, err := application.Catalog.UpdateUnit(cmd.Context(), id, input)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), unit)
		},
	}
	inputFlags(update)
	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			return application.Catalog.DeleteUnit(cmd.Context(), id)
		},
	}
	var floorPlan string
	upload := &cobra.Command{
		Use:   "upload <id> [image]...",
		Short: "Add images to a unit and optionally replace its floor plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			images, err := readFiles("images", args[1:])
			if err != nil {
				return err
			}
			var plan *catalog.File
			if floorPlan != "" {
				file, err := readFile("floor_plan", floorPlan)
				if err != nil {
					return err
				}
				plan = &file
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			names, err := followUpload(cmd, application.Catalog.UploadUnitFiles(cmd.Context(), id, images, plan))
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), names)
		},
	}
	upload.Flags().StringVar(&floorPlan, "floor-plan", "", "Floor plan file")
	cmd.AddCommand(list, get, create, update, remove, upload)
	return cmd
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage console accounts",
	}
	var username, password, role string
	register := &cobra.Command{
		Use:   "register",
		Short: "Create a console account, only admins can do this",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			user, err := application.Catalog.RegisterUser(cmd.Context(), username, password, role)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), user)
		},
	}
	register.Flags().StringVarP(&username, "username", "u", "", "Account name")
	register.Flags().StringVarP(&password, "password", "p", "", "Account password")
	register.Flags().StringVar(&role, "role", "user", "user or admin")
	register.MarkFlagRequired("username")
	register.MarkFlagRequired("password")
	cmd.AddCommand(register)
	return cmd
}
