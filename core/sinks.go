package core

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/sirupsen/logrus"
)

// Sink is the external collaborator boundary named in spec §6: a
// content-addressed upload call and a registry submission call, both
// potentially failing and both treated as opaque by the rest of this
// package. This file ships the mock implementation used for local runs
// and tests; a real backend would satisfy the same interface.
type Sink interface {
	UploadFolder(ctx context.Context, dir string) (string, error)
	RegisterBatch(ctx context.Context, epoch int64, geoBatchID CellID, merkleRoot Hash32, cidStr string) error
}

// MockSink implements Sink without any network calls, grounded on
// core/storage.go's CID-pinning gateway wrapper and JSONL listing
// persistence, repurposed here for an epoch directory and a flat
// registration log.
type MockSink struct {
	RegistryPath string
	Logger       *logrus.Logger
}

// NewMockSink constructs a MockSink that appends registrations to
// registryPath.
func NewMockSink(registryPath string, lg *logrus.Logger) *MockSink {
	if lg == nil {
		lg = logrus.New()
	}
	return &MockSink{RegistryPath: registryPath, Logger: lg}
}

// UploadFolder hashes every file under dir (sorted by relative path),
// combines the hashes into a single content digest, and mints a CIDv1
// identifying it — standing in for a real CAS pin per spec §6.
func (s *MockSink) UploadFolder(ctx context.Context, dir string) (string, error) {
	var rels []string
	fileHashes := make(map[string]string)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		rels = append(rels, rel)
		fileHashes[rel] = hex.EncodeToString(sum[:])
		return nil
	})
	if err != nil {
		return "", &IOError{Path: dir, Err: err}
	}
	sort.Strings(rels)

	parts := make([]string, len(rels))
	for i, rel := range rels {
		parts[i] = fileHashes[rel] + ":" + rel
	}
	folderDigest := sha256.Sum256([]byte(strings.Join(parts, "|")))

	encodedMH, err := mh.Sum(folderDigest[:], mh.SHA2_256, -1)
	if err != nil {
		return "", &IOError{Path: dir, Err: err}
	}
	c := cid.NewCidV1(cid.Raw, encodedMH)
	cidStr := c.String()
	s.Logger.Infof("sink: uploaded %s as %s (%d files)", dir, cidStr, len(rels))
	return cidStr, nil
}

type registrationRecord struct {
	ID           string    `json:"id"`
	Epoch        int64     `json:"epoch"`
	GeoBatchID   string    `json:"geoBatchId"`
	MerkleRoot   string    `json:"merkleRoot"`
	CID          string    `json:"cid"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// RegisterBatch appends a registration record to a JSONL file, standing in
// for on-chain/registry submission per spec §6.
func (s *MockSink) RegisterBatch(ctx context.Context, epoch int64, geoBatchID CellID, merkleRoot Hash32, cidStr string) error {
	rec := registrationRecord{
		ID:           uuid.NewString(),
		Epoch:        epoch,
		GeoBatchID:   string(geoBatchID),
		MerkleRoot:   merkleRoot.String(),
		CID:          cidStr,
		RegisteredAt: time.Now().UTC(),
	}

	if err := os.MkdirAll(filepath.Dir(s.RegistryPath), 0o755); err != nil {
		return &IOError{Path: s.RegistryPath, Err: err}
	}
	f, err := os.OpenFile(s.RegistryPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &IOError{Path: s.RegistryPath, Err: err}
	}
	defer f.Close()

	raw, err := json.Marshal(rec)
	if err != nil {
		return &EncodeError{Reason: err.Error()}
	}
	w := bufio.NewWriter(f)
	if _, err := w.Write(raw); err != nil {
		return &IOError{Path: s.RegistryPath, Err: err}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return &IOError{Path: s.RegistryPath, Err: err}
	}
	if err := w.Flush(); err != nil {
		return &IOError{Path: s.RegistryPath, Err: err}
	}
	s.Logger.Infof("sink: registered batch %s epoch %d cid %s", geoBatchID, epoch, cidStr)
	return nil
}
