package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/foodbank-planner/backend-go/internal/config"
	"github.com/foodbank-planner/backend-go/internal/inventory"
	"github.com/foodbank-planner/backend-go/internal/storage"
	"github.com/urfave/cli/v2"
)

// workbookDownloader pulls inventory workbooks from object storage into the
// local data dir so they can be planned in batch.
type workbookDownloader struct {
	client  storage.ObjectStorage
	dataDir string
}

func runPull(c *cli.Context, cfg *config.Config) error {
	client, err := storage.NewMinioClient(c.Context, cfg.Storage)
	if err != nil {
		return err
	}
	d := &workbookDownloader{client: client, dataDir: c.String("data-dir")}

	paths, err := d.download(c.Context, c.String("prefix"), c.String("user"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(c.App.Writer, p)
	}
	return nil
}

// download fetches inventory_<user>.xlsx objects below prefix. With a user id
// only that user's workbook is fetched.
func (d *workbookDownloader) download(ctx context.Context, prefix, userID string) ([]string, error) {
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure data dir %s: %w", d.dataDir, err)
	}

	var keys []string
	if userID != "" {
		keys = []string{resolveObjectKey(prefix, "inventory_"+userID+".xlsx")}
	} else {
		objects, err := d.client.ListObjects(ctx, strings.TrimSpace(prefix))
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", prefix, err)
		}
		for _, obj := range objects {
			if _, ok := inventory.UserFromPath(path.Base(obj.Key)); ok {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no inventory workbooks found for prefix %s", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(d.dataDir, path.Base(key))
		if err := d.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func resolveObjectKey(prefix, name string) string {
	prefixTrimmed := strings.Trim(strings.TrimSpace(prefix), "/")
	if prefixTrimmed == "" {
		return name
	}
	return prefixTrimmed + "/" + name
}
