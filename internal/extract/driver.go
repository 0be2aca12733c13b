// Package extract implements the extraction driver (component H): it drains
// an ext4 volume's walker, writes file payloads to a host directory, and
// produces the fs_config/file_contexts sidecars Android packaging tools
// expect alongside the extracted tree.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ext4img/extractor/internal/ext4"
)

const (
	rootDirMode     = 0755
	buildPropSuffix = "/system/build.prop"
	rootfsLabel     = "u:object_r:rootfs:s0"
)

// Report summarizes one extraction run.
type Report struct {
	VolumeLabel   string
	ItemsWalked   int
	ItemsWritten  int
	WalkErrors    []error
	SystemAsRoot  bool
}

// Driver owns the destination root and sidecar files for one extraction run.
type Driver struct {
	vol         *ext4.Volume
	outputRoot  string
	volumeLabel string
	concurrency int
	log         *logrus.Logger
}

// NewDriver constructs a driver. concurrency <= 0 is treated as 1.
func NewDriver(vol *ext4.Volume, outputRoot string, concurrency int, log *logrus.Logger) *Driver {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = logrus.New()
	}
	label := vol.Name()
	if label == "" {
		label = "rootfs"
	}
	return &Driver{
		vol:         vol,
		outputRoot:  outputRoot,
		volumeLabel: label,
		concurrency: concurrency,
		log:         log,
	}
}

// itemResult is what one worker produces for one walk item: the sidecar
// lines it contributes, kept at the item's original index so the final
// write preserves a deterministic total order regardless of which goroutine
// finished first (SPEC_FULL.md §5 Ordering guarantees).
type itemResult struct {
	fsConfigLine      string
	fileContextsLines []string
	written           bool
}

// Extract walks the volume, writes payloads under outputRoot/<volume>/, and
// writes the two sidecar files under outputRoot/config/.
func (d *Driver) Extract(ctx context.Context) (*Report, error) {
	root := filepath.Join(d.outputRoot, safePath(d.volumeLabel))
	if err := os.MkdirAll(root, rootDirMode); err != nil {
		return nil, fmt.Errorf("create volume root %s: %w", root, err)
	}

	d.log.WithField("root", root).Info("scanning volume")
	walker, err := d.vol.NewWalker(ctx)
	if err != nil {
		return nil, fmt.Errorf("start walker: %w", err)
	}
	items, walkErrs := walker.WalkAll(ctx)
	for _, werr := range walkErrs {
		d.log.WithError(werr).Warn("entry skipped during walk")
	}

	sar := detectSystemAsRoot(items)

	configDir := filepath.Join(d.outputRoot, "config")
	if err := os.MkdirAll(configDir, rootDirMode); err != nil {
		return nil, fmt.Errorf("create config dir %s: %w", configDir, err)
	}
	fsConfigPath := filepath.Join(configDir, safePath(d.volumeLabel)+"_fs_config")
	fileContextsPath := filepath.Join(configDir, safePath(d.volumeLabel)+"_file_contexts")

	fsConfigFile, err := os.Create(fsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", fsConfigPath, err)
	}
	defer fsConfigFile.Close()

	fileContextsFile, err := os.Create(fileContextsPath)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", fileContextsPath, err)
	}
	defer fileContextsFile.Close()

	for _, line := range rootFsConfigLines(d.volumeLabel) {
		if _, err := fmt.Fprintln(fsConfigFile, line); err != nil {
			return nil, err
		}
	}
	if sar {
		for _, line := range sarFileContextsLines(d.volumeLabel) {
			if _, err := fmt.Fprintln(fileContextsFile, line); err != nil {
				return nil, err
			}
		}
	}

	results := make([]itemResult, len(items))
	eg, egCtx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	for w := 0; w < d.concurrency; w++ {
		eg.Go(func() error {
			for idx := range jobs {
				if err := egCtx.Err(); err != nil {
					return err
				}
				results[idx] = d.extractOne(egCtx, root, items[idx])
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer close(jobs)
		for i := range items {
			select {
			case jobs <- i:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	written := 0
	for _, r := range results {
		if _, err := fmt.Fprintln(fsConfigFile, r.fsConfigLine); err != nil {
			return nil, err
		}
		for _, line := range r.fileContextsLines {
			if _, err := fmt.Fprintln(fileContextsFile, line); err != nil {
				return nil, err
			}
		}
		if r.written {
			written++
		}
	}

	return &Report{
		VolumeLabel:  d.volumeLabel,
		ItemsWalked:  len(items),
		ItemsWritten: written,
		WalkErrors:   walkErrs,
		SystemAsRoot: sar,
	}, nil
}

// extractOne writes one item's payload (if any) to the host and computes its
// sidecar contribution. A failure writing the payload is logged and the item
// is skipped, but its sidecar lines are still produced: a single bad entry
// never aborts the run (SPEC_FULL.md §7).
func (d *Driver) extractOne(ctx context.Context, root string, item *ext4.WalkItem) itemResult {
	itemPath := safePath(item.Path)
	destPath := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(itemPath, "/")))

	written := false
	switch item.Type {
	case ext4.FileTypeDirectory:
		if err := os.MkdirAll(destPath, rootDirMode); err != nil {
			d.log.WithError(err).WithField("path", itemPath).Warn("mkdir failed")
		} else {
			written = true
		}
	case ext4.FileTypeRegular:
		if err := os.MkdirAll(filepath.Dir(destPath), rootDirMode); err != nil {
			d.log.WithError(err).WithField("path", itemPath).Warn("mkdir parent failed")
			break
		}
		data, err := d.vol.ReadFileData(ctx, item)
		if err != nil {
			d.log.WithError(err).WithField("path", itemPath).Warn("read failed")
			break
		}
		if err := os.WriteFile(destPath, data, os.FileMode(item.Attributes.Mode&0777)); err != nil {
			d.log.WithError(err).WithField("path", itemPath).Warn("write failed")
			break
		}
		written = true
	case ext4.FileTypeSymlink:
		if err := os.MkdirAll(filepath.Dir(destPath), rootDirMode); err != nil {
			d.log.WithError(err).WithField("path", itemPath).Warn("mkdir parent failed")
			break
		}
		target, err := d.vol.ReadSymlinkTarget(ctx, item)
		if err != nil {
			d.log.WithError(err).WithField("path", itemPath).Warn("symlink read failed")
			break
		}
		if err := createSymlink(target, destPath); err != nil {
			d.log.WithError(err).WithField("path", itemPath).Warn("symlink create failed")
			break
		}
		written = true
	default:
		// Device, FIFO, and socket payloads are intentionally skipped: the
		// node's metadata still belongs in the sidecars below.
	}

	volumeRelPath := "/" + safePath(d.volumeLabel) + itemPath
	fsConfig := fsConfigLine(trimLeadingSlash(volumeRelPath), item.Attributes.UID, item.Attributes.GID, item.Attributes.ModeWithCaps())

	var fileContexts []string
	if item.Attributes.HasSELinux {
		fileContexts = append(fileContexts, fileContextsLine(volumeRelPath, item.Attributes.SELinux))
		if item.Type == ext4.FileTypeDirectory {
			fileContexts = append(fileContexts, fileContextsDirLine(volumeRelPath, item.Attributes.SELinux))
		}
	}

	return itemResult{
		fsConfigLine:      fsConfig,
		fileContextsLines: fileContexts,
		written:           written,
	}
}

// rootFsConfigLines returns the two fixed fs_config lines every extraction
// emits before any walked entry: the image root and the volume directory
// itself, per SPEC_FULL.md §6 ("/ 0 0 0755" then "<volume> 0 0 0755", no
// leading slash on the second line).
func rootFsConfigLines(volumeLabel string) []string {
	return []string{
		fsConfigLine("/", 0, 0, "0755"),
		fsConfigLine(safePath(volumeLabel), 0, 0, "0755"),
	}
}

// detectSystemAsRoot reports whether the image packages a System-as-Root
// layout: a regular file at .../system/build.prop anywhere in the tree.
func detectSystemAsRoot(items []*ext4.WalkItem) bool {
	for _, item := range items {
		if item.Type != ext4.FileTypeRegular {
			continue
		}
		if strings.HasSuffix(safePath(item.Path), buildPropSuffix) {
			return true
		}
	}
	return false
}
