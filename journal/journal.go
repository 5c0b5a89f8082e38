// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package journal records the mutation sequence committed by a
// transform invocation. The journal is observability only: it never
// replays or rolls anything back. Its running digest makes the
// determinism contract checkable: identical database state and
// argument vectors must yield identical digests.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dchest/siphash"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// digest keys; fixed so digests compare across runs and processes
const (
	k0 = 0x70687973796e6a6c // "physynjl"
	k1 = 0x6d75746c6f670a00 // "mutlog"
)

// Record is one committed mutation.
type Record struct {
	Seq  int      `json:"seq"`
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

// Journal accumulates mutation records and a running digest.
type Journal struct {
	// RunID distinguishes invocations in dumped logs.
	RunID string

	records []Record
	digest  uint64
}

// New returns an empty journal with a fresh run id.
func New() *Journal {
	return &Journal{RunID: uuid.NewString()}
}

// Append records one mutation and folds it into the digest.
func (j *Journal) Append(op string, args ...string) {
	rec := Record{Seq: len(j.records), Op: op, Args: args}
	j.records = append(j.records, rec)

	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, j.digest)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.Seq))
	buf = append(buf, op...)
	for _, a := range args {
		buf = append(buf, 0)
		buf = append(buf, a...)
	}
	j.digest = siphash.Hash(k0, k1, buf)
}

// Len returns the number of recorded mutations.
func (j *Journal) Len() int { return len(j.records) }

// Records returns the recorded mutations in commit order.
func (j *Journal) Records() []Record { return j.records }

// Digest returns the running siphash digest over the record
// sequence. The digest is independent of RunID.
func (j *Journal) Digest() uint64 { return j.digest }

// Dump writes the journal as a zstd-compressed JSON stream.
func (j *Journal) Dump(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	enc := json.NewEncoder(zw)
	header := struct {
		RunID  string `json:"run_id"`
		Count  int    `json:"count"`
		Digest uint64 `json:"digest"`
	}{j.RunID, len(j.records), j.digest}
	if err := enc.Encode(&header); err != nil {
		zw.Close()
		return fmt.Errorf("journal: %w", err)
	}
	for i := range j.records {
		if err := enc.Encode(&j.records[i]); err != nil {
			zw.Close()
			return fmt.Errorf("journal: %w", err)
		}
	}
	return zw.Close()
}
