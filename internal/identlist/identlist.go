// Copyright (C) The qctool-go Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package identlist loads whitespace-tokenised identifier lists
// (SNPID, RSID, or decimal position strings, one token per line or
// freely whitespace-separated) used by identifier-list filter
// predicates.
package identlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// ErrIdentifierListMissing is returned when a list file cannot be
// opened or read.
var ErrIdentifierListMissing = errors.New("identlist: identifier list file missing or unreadable")

// List is an eagerly loaded, deduplicated set of identifiers. A SNP
// matches the list if its SNPID, RSID, or decimal position string is
// a member.
type List struct {
	members map[string]struct{}
	hash    [blake2b.Size256]byte
	files   []string
}

// Load reads one or more whitespace-tokenised files into a single
// List, eagerly, at construction time.
func Load(paths ...string) (*List, error) {
	l := &List{members: map[string]struct{}{}, files: append([]string(nil), paths...)}
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIdentifierListMissing, path, err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			tok := scanner.Text()
			l.members[tok] = struct{}{}
			h.Write([]byte(tok))
			h.Write([]byte{0})
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIdentifierListMissing, path, err)
		}
	}
	copy(l.hash[:], h.Sum(nil))
	return l, nil
}

// Contains reports whether snpID, rsID, or the decimal string form of
// position is a member.
func (l *List) Contains(snpID, rsID string, position int) bool {
	if _, ok := l.members[snpID]; ok {
		return true
	}
	if _, ok := l.members[rsID]; ok {
		return true
	}
	if _, ok := l.members[strconv.Itoa(position)]; ok {
		return true
	}
	return false
}

// Len returns the number of distinct tokens loaded.
func (l *List) Len() int { return len(l.members) }

// Hash returns a content hash of the loaded tokens in scan order,
// suitable for logging which exact list version a run used without
// echoing its full contents.
func (l *List) Hash() [blake2b.Size256]byte { return l.hash }

// Files returns the source file paths this list was loaded from.
func (l *List) Files() []string { return append([]string(nil), l.files...) }
