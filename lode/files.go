package lode

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// ReportFileName is the sidecar name of the JSON run report.
const ReportFileName = "run_report.json"

// PutFile stores data as a sidecar file of the run, next to its partitions:
//
//	datasets/<dataset>/partitions/source=<s>/day=<d>/run_id=<r>/files/<name>
//
// Sidecar files are not records; they bypass segments and manifests.
func (c *LodeClient) PutFile(ctx context.Context, name string, data []byte) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid sidecar filename %q", name)
	}

	store, err := c.rawStore()
	if err != nil {
		return WrapInitError(err, c.config.Dataset)
	}
	p := c.filePath(name)
	return WrapWriteError(store.Put(ctx, p, bytes.NewReader(data)), p)
}

func (c *LodeClient) rawStore() (lode.Store, error) {
	c.storeOnce.Do(func() {
		c.store, c.storeErr = c.storeFactory()
	})
	return c.store, c.storeErr
}

func (c *LodeClient) filePath(name string) string {
	return path.Join(
		"datasets", c.config.Dataset, "partitions",
		"source="+c.config.Source,
		"day="+c.config.Day,
		"run_id="+c.config.RunID,
		"files", name,
	)
}
