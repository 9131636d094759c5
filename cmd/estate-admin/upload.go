package main

import (
	"fmt"

	"github.com/estatehub/admin-gateway/internal/catalog"
	"github.com/spf13/cobra"
)

func readFile(field, path string) (catalog.File, error) {
	file, err := catalog.FileFromPath(field, path)
	if err != nil {
		return catalog.File{}, fmt.Errorf("reading %s failed: %w", path, err)
	}
	return file, nil
}

func readFiles(field string, paths []string) ([]catalog.File, error) {
	files := make([]catalog.File, 0, len(paths))
	for _, path := range paths {
		file, err := readFile(field, path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// followUpload prints the progress of the upload on stderr until it finishes.
func followUpload(cmd *cobra.Command, upload *catalog.Upload) ([]string, error) {
	out := cmd.ErrOrStderr()
	printed := false
	for p := range upload.Progress() {
		if p.Total > 0 {
			fmt.Fprintf(out, "\rUploading... %3d%%", p.Sent*100/p.Total)
			printed = true
		}
	}
	if printed {
		fmt.Fprintln(out)
	}
	return upload.Wait()
}

func (c *cli) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload files to the media library and print their stored names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles("file", args)
			if err != nil {
				return err
			}
			application, err := c.load(cmd)
			if err != nil {
				return err
			}
			names, err := application.Catalog.UploadMany(cmd.Context(), files)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), names)
		},
	}
}
