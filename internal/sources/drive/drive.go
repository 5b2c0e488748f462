// Package drive serves documents stored as files in a Google Drive folder.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/sources"
)

// Config selects the folder and the service account used to read it.
// CredentialsJSON wins over CredentialsFile.
type Config struct {
	FolderID        string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc      *gdrive.Service
	folderID string
	logger   *log.Logger
}

var (
	_ sources.DocumentSource = (*Client)(nil)
	_ sources.DocumentLister = (*Client)(nil)
)

// New builds a read-only Drive client from service account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.FolderID) == "" {
		return nil, errors.New("missing GOOGLE_DRIVE_FOLDER_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gdrive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	logger = logger.WithComponent(log.ComponentSource)
	logger.InfoContext(ctx, "Google Drive source ready", "folder_id", cfg.FolderID)
	return &Client{svc: svc, folderID: cfg.FolderID, logger: logger}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// FetchDocument looks the name up in the folder and downloads its content.
func (c *Client) FetchDocument(ctx context.Context, name string) ([]byte, bool, error) {
	list, err := c.svc.Files.List().
		Q(nameQuery(c.folderID, name)).
		Fields("files(id, name, modifiedTime)").
		OrderBy("modifiedTime desc").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, false, mapError("find "+name, err)
	}
	if len(list.Files) == 0 {
		return nil, false, nil
	}

	resp, err := c.svc.Files.Get(list.Files[0].Id).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, mapError("download "+name, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	c.logger.DebugContext(ctx, "Downloaded document", log.FieldDocument, name, "bytes", len(raw))
	return raw, true, nil
}

// ListNames returns every JSON file name in the folder.
func (c *Client) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.svc.Files.List().
		Q(folderQuery(c.folderID)).
		Fields("nextPageToken, files(name)").
		PageSize(200).
		Pages(ctx, func(page *gdrive.FileList) error {
			for _, f := range page.Files {
				if strings.HasSuffix(f.Name, ".json") {
					names = append(names, f.Name)
				}
			}
			return nil
		})
	if err != nil {
		return nil, mapError("list folder", err)
	}
	return names, nil
}

func (c *Client) ListAvailable(ctx context.Context) ([]core.Entry, error) {
	names, err := c.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	return core.EntriesFromNames(names), nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func folderQuery(folderID string) string {
	return fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
}

func nameQuery(folderID, name string) string {
	return fmt.Sprintf("name = '%s' and %s", escapeQuery(name), folderQuery(folderID))
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// mapError turns credential rejections into core.ErrUnauthorized.
func mapError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) {
		return fmt.Errorf("%s: %w: %s", op, core.ErrUnauthorized, gerr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
