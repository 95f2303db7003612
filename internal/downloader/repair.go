package downloader

import (
	"fmt"
	"os"
)

// Repair neutralizes the platform's legacy container corruption by zeroing
// the first two bytes of the file in place.
//
// Precondition: path is a freshly downloaded video-only stream. Old items
// were stored with a mangled header that the player fixed client-side;
// exactly this two-byte patch restores them. It must not be applied to a
// pre-muxed combined rendition.
func Repair(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() < 2 {
		return fmt.Errorf("repair %s: file shorter than two bytes", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte{0x00, 0x00}, 0); err != nil {
		return fmt.Errorf("repair %s: %w", path, err)
	}
	return nil
}
