// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package custody

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/claviger/claviger/internal/model"
)

// BackupStore is the export/import surface of the data access layer used
// by backup and restore.
type BackupStore interface {
	ExportDataForBackup() (*model.BackupData, error)
	ImportDataFromBackup(backup *model.BackupData) error
	IntegrateDataFromBackup(backup *model.BackupData) error
}

// RestoreOptions controls restore behavior used by Restore.
type RestoreOptions struct {
	// Full indicates whether to perform a full wipe-and-replace restore
	// (true) or a merge restore that skips existing entries (false).
	Full bool
}

// WriteBackup exports the store's data and writes it to w as
// zstd-compressed JSON.
func WriteBackup(st BackupStore, w io.Writer) error {
	data, err := st.ExportDataForBackup()
	if err != nil {
		return fmt.Errorf("export backup: %w", err)
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	defer func() { _ = zw.Close() }()
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return zw.Close()
}

// Restore reads a zstd-compressed JSON backup and imports it via the
// store.
func Restore(st BackupStore, r io.Reader, opts RestoreOptions) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	if opts.Full {
		return st.ImportDataFromBackup(&data)
	}
	return st.IntegrateDataFromBackup(&data)
}
