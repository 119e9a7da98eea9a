// Package fileutil holds the copy primitives used when staging subtitle
// tracks and handing finished videos off to the output directory.
package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Copy duplicates src at dst, truncating any existing file. The destination
// keeps the source's permission bits.
func Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyVerified copies src to dst and re-reads the destination to confirm the
// bytes that landed on disk match the source. A short or corrupted copy
// removes dst so a partial final video is never left behind.
func CopyVerified(src, dst string) error {
	srcSum, srcSize, err := digest(src)
	if err != nil {
		return fmt.Errorf("hash source: %w", err)
	}

	if err := Copy(src, dst); err != nil {
		return err
	}

	dstSum, dstSize, err := digest(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("hash copy: %w", err)
	}
	if dstSize != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("short copy: %d of %d bytes", dstSize, srcSize)
	}
	if dstSum != srcSum {
		_ = os.Remove(dst)
		return fmt.Errorf("checksum mismatch copying %s", src)
	}
	return nil
}

func digest(path string) (string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}
