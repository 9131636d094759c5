package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/estatehub/admin-gateway/internal/restapi"
	"golang.org/x/sync/errgroup"
)

// File is one part of a multipart upload.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// FileFromPath reads a local file into an upload part.
func FileFromPath(field, path string) (File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{Field: field, Name: filepath.Base(path), Content: content}, nil
}

// Progress reports how many bytes of the request body were sent.
type Progress struct {
	Sent  int64
	Total int64
}

// Upload is a running upload. Progress events are dropped when nobody keeps up with them.
type Upload struct {
	progress chan Progress
	done     chan struct{}
	lock     sync.Mutex
	closed   bool
	files    []string
	err      error
}

// Progress returns the event stream, it is closed when the upload finishes.
func (u *Upload) Progress() <-chan Progress {
	return u.progress
}

// Wait blocks until the upload finishes and returns the stored file names.
func (u *Upload) Wait() ([]string, error) {
	<-u.done
	return u.files, u.err
}

func (u *Upload) publish(p Progress) {
	u.lock.Lock()
	defer u.lock.Unlock()
	if u.closed {
		return
	}
	select {
	case u.progress <- p:
	default:
	}
}

func (u *Upload) finish(files []string, err error) {
	u.lock.Lock()
	u.closed = true
	close(u.progress)
	u.lock.Unlock()
	u.files = files
	u.err = err
	close(u.done)
}

type progressReader struct {
	reader io.Reader
	sent   int64
	total  int64
	upload *Upload
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.upload.publish(Progress{Sent: p.sent, Total: p.total})
	}
	return n, err
}

func (p *progressReader) Close() error {
	return nil
}

func encodeMultipart(files []File) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", err
		}
		_, err = part.Write(f.Content)
		if err != nil {
			return nil, "", err
		}
	}
	err := writer.Close()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func (c *Client) startUpload(ctx context.Context, path string, files []File) *Upload {
	upload := &Upload{progress: make(chan Progress, 16), done: make(chan struct{})}
	go func() {
		names, err := c.sendMultipart(ctx, path, files, upload)
		upload.finish(names, err)
	}()
	return upload
}

func (c *Client) sendMultipart(ctx context.Context, path string, files []File, upload *Upload) ([]string, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to upload")
	}
	raw, contentType, err := encodeMultipart(files)
	if err != nil {
		return nil, err
	}
	total := int64(len(raw))
	getBody := func() (io.ReadCloser, error) {
		return &progressReader{reader: bytes.NewReader(raw), total: total, upload: upload}, nil
	}
	body, _ := getBody()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = total
	req.GetBody = getBody
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	var output struct {
		Data     []string `json:"data"`
		Filename string   `json:"filename"`
	}
	err = restapi.Decode(res, &output)
	if err != nil {
		return nil, err
	}
	if output.Filename != "" {
		return []string{output.Filename}, nil
	}
	return output.Data, nil
}

// UploadFile sends a single file to the generic upload endpoint.
func (c *Client) UploadFile(ctx context.Context, file File) *Upload {
	file.Field = "file"
	return c.startUpload(ctx, "upload", []File{file})
}

// UploadProjectImages appends images to a project.
func (c *Client) UploadProjectImages(ctx context.Context, projectID int, images []File) *Upload {
	parts := make([]File, len(images))
	for i, image := range images {
		image.Field = "images"
		parts[i] = image
	}
	return c.startUpload(ctx, idPath("projects", projectID)+"/upload", parts)
}

// UploadUnitFiles appends images to a unit and optionally replaces its floor plan.
func (c *Client) UploadUnitFiles(ctx context.Context, unitID int, images []File, floorPlan *File) *Upload {
	parts := make([]File, 0, len(images)+1)
	for _, image := range images {
		image.Field = "images"
		parts = append(parts, image)
	}
	if floorPlan != nil {
		plan := *floorPlan
		plan.Field = "floor_plan"
		parts = append(parts, plan)
	}
	return c.startUpload(ctx, idPath("units", unitID)+"/upload", parts)
}

// UploadMany sends every file to the generic upload endpoint concurrently and returns the
// stored names in the order of the input. The first failure cancels the remaining uploads.
func (c *Client) UploadMany(ctx context.Context, files []File) ([]string, error) {
	names := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.uploadConcurrency)
	for i, file := range files {
		g.Go(func() error {
			stored, err := c.UploadFile(ctx, file).Wait()
			if err != nil {
				return fmt.Errorf("uploading %s failed: %w", file.Name, err)
			}
			if len(stored) > 0 {
				names[i] = stored[0]
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return names, nil
}
