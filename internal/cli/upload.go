package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/tourtrack/internal/api"
	"github.com/me/tourtrack/pkg/model"
)

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.gpx>...",
		Short: "Upload GPX files as new tours",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/upload"); err != nil {
				return err
			}

			parts, size, closeAll, err := openFiles(args)
			if err != nil {
				return err
			}
			defer closeAll()
			logger.Info("uploading", "files", len(parts), "size", humanize.Bytes(uint64(size)))

			var res *model.UploadResult
			if len(parts) == 1 {
				res, err = application.Client.UploadTour(cmd.Context(), parts[0])
			} else {
				res, err = application.Client.UploadTours(cmd.Context(), parts)
			}
			if err != nil {
				application.Notify.Error("Upload failed: " + api.MessageOf(err))
				return userError(err)
			}
			application.Notify.Success(fmt.Sprintf("Uploaded %d file(s)", len(parts)))

			return render(cmd, res, func(w io.Writer) {
				fmt.Fprintf(w, "Uploaded %d file(s), %s\n", len(parts), humanize.Bytes(uint64(size)))
				if res.Message != "" {
					fmt.Fprintf(w, "  %s\n", res.Message)
				}
				if res.TourID != 0 {
					fmt.Fprintf(w, "  Tour ID:  %d\n", res.TourID)
				}
				if res.Imported != 0 {
					fmt.Fprintf(w, "  Imported: %d\n", res.Imported)
				}
				for _, f := range res.Failed {
					fmt.Fprintf(w, "  Failed:   %s\n", f)
				}
			})
		},
	}
}

// openFiles opens paths for a multipart upload and returns their total size.
func openFiles(paths []string) ([]api.FilePart, int64, func(), error) {
	var (
		parts []api.FilePart
		files []*os.File
		size  int64
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, 0, nil, fmt.Errorf("open %s: %w", p, err)
		}
		files = append(files, f)
		if fi, err := f.Stat(); err == nil {
			size += fi.Size()
		}
		parts = append(parts, api.FilePart{Name: filepath.Base(p), Reader: f})
	}
	return parts, size, closeAll, nil
}
