// Package attachment implements the two-phase attachment upload flow:
// request an upload slot from the console API, then push the raw file
// bytes to the returned presigned target. All files belonging to one
// save upload concurrently; the caller joins on the whole batch before
// sending the parent record.
package attachment

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fieldserve/adminsdk/api"
)

// LocalFile is a newly attached file awaiting upload. It lives under the
// "file" key of an attachment entry and is discarded once the server
// assigns an identifier.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Slot is an upload slot issued by the console API.
type Slot struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	PresignData struct {
		URL string `json:"url"`
	} `json:"presign_data"`
}

// Uploader requests upload slots through the authenticated API client
// and pushes file bytes to the presigned targets with a plain HTTP
// client (the target carries its own credentials in the URL).
type Uploader struct {
	api        *api.Client
	httpClient *http.Client
	log        logrus.FieldLogger
}

// NewUploader creates an uploader over the given API transport.
func NewUploader(client *api.Client) *Uploader {
	return &Uploader{
		api:        client,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        logrus.StandardLogger(),
	}
}

// UploadPending uploads every attachment entry that lacks a created_at
// and carries a pending local file under "file". Uploads fan out
// concurrently; the first failure cancels the batch and the whole save
// must abort — the server never receives a reference to an attachment
// that has not finished uploading. Each entry is mutated in place: the
// server-assigned id and filename are recorded and the local file handle
// is dropped.
func (u *Uploader) UploadPending(ctx context.Context, parentKind string, attachments []map[string]any) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, att := range attachments {
		if persisted, present := att["created_at"]; present && persisted != nil {
			continue
		}
		file, ok := att["file"].(*LocalFile)
		if !ok {
			continue
		}
		att := att
		g.Go(func() error {
			return u.uploadOne(ctx, parentKind, att, file)
		})
	}

	return g.Wait()
}

// uploadOne runs the two-phase flow for a single file. Only this
// goroutine touches its attachment entry, so no locking is needed.
func (u *Uploader) uploadOne(ctx context.Context, parentKind string, att map[string]any, file *LocalFile) error {
	slot, err := u.requestSlot(ctx, file.Name, parentKind)
	if err != nil {
		return err
	}

	if err := u.uploadBytes(ctx, slot.PresignData.URL, file); err != nil {
		return err
	}

	att["_id"] = slot.ID
	att["filename"] = slot.Filename
	delete(att, "file")

	u.log.WithFields(logrus.Fields{
		"filename": slot.Filename,
		"id":       slot.ID,
	}).Debug("attachment uploaded")
	return nil
}

// requestSlot asks the console API for an upload slot.
func (u *Uploader) requestSlot(ctx context.Context, filename, parentKind string) (*Slot, error) {
	resp, err := u.api.Post(ctx, "/attachments", map[string]string{
		"filename":    filename,
		"parent_kind": parentKind,
	})
	if err != nil {
		return nil, fmt.Errorf("request upload slot: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("request upload slot: status %d", resp.StatusCode)
	}

	var slot Slot
	if err := resp.JSON(&slot); err != nil {
		return nil, fmt.Errorf("decode upload slot: %w", err)
	}
	if slot.PresignData.URL == "" {
		return nil, fmt.Errorf("upload slot for %s carries no target URL", filename)
	}
	return &slot, nil
}

// uploadBytes pushes the raw file content to the presigned target.
func (u *Uploader) uploadBytes(ctx context.Context, target string, file *LocalFile) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(file.Data))
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	if file.ContentType != "" {
		req.Header.Set("Content-Type", file.ContentType)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", file.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("upload %s: status %d", file.Name, resp.StatusCode)
	}
	return nil
}
