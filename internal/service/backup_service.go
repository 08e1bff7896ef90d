package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"wagonquiz/internal/database"
	"wagonquiz/internal/models"
	"wagonquiz/internal/realtime"
	"wagonquiz/internal/repository"
	"wagonquiz/internal/security"
)

// The backup format is the same JSON tree the realtime database exports, so
// a database export can be loaded into SQL and back.

type backupTree struct {
	Users map[string]userNode `json:"users"`
	Tests map[string]testNode `json:"tests"`
}

type userNode struct {
	Password    string                         `json:"password"`
	SchoolGrade *string                        `json:"schoolGrade,omitempty"`
	MathGrade   *string                        `json:"mathGrade,omitempty"`
	Results     map[string]models.ResultRecord `json:"results,omitempty"`
}

type testNode struct {
	Grade           *string                 `json:"grade,omitempty"`
	MiniGameConfigs map[string]miniGameNode `json:"miniGameConfigs,omitempty"`
}

type miniGameNode struct {
	MaxNumberRange   *string `json:"maxNumberRange,omitempty"`
	MiniGameDuration *string `json:"miniGameDuration,omitempty"`
	NumQuestions     *string `json:"numQuestions,omitempty"`
	RequiredPercent  *string `json:"requiredCorrectAnswersMinimumPercent,omitempty"`
}

// ImportOptions controls Import
type ImportOptions struct {
	Clear    bool // remove existing users, tests and results first
	HashPINs bool // bcrypt plaintext PINs while importing
}

// ImportStats counts what an import wrote
type ImportStats struct {
	Users      int
	Tests      int
	Results    int
	HashedPINs int
}

// BackupService handles export and import of the SQL backend
type BackupService struct {
	db  *database.DB
	log *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *zap.Logger) *BackupService {
	return &BackupService{db: db, log: log}
}

// ExportToFile writes a backup to outputPath
func (s *BackupService) ExportToFile(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := s.Export(ctx, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Export writes the users and tests collections as one JSON tree
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	users, err := repository.NewUserRepository(s.db).ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	tests, err := repository.NewTestRepository(s.db).ListTests(ctx)
	if err != nil {
		return fmt.Errorf("failed to export tests: %w", err)
	}
	resultRepo := repository.NewResultRepository(s.db)

	tree := backupTree{
		Users: make(map[string]userNode, len(users)),
		Tests: make(map[string]testNode, len(tests)),
	}

	resultCount := 0
	for _, u := range users {
		node := userNode{Password: u.Password, SchoolGrade: u.SchoolGrade, MathGrade: u.MathGrade}

		stored, err := resultRepo.List(ctx, u.Identifier, 0)
		if err != nil {
			return fmt.Errorf("failed to export results for %s: %w", u.Identifier, err)
		}
		if len(stored) > 0 {
			node.Results = make(map[string]models.ResultRecord, len(stored))
			for _, sr := range stored {
				node.Results[sr.Key] = sr.Result
			}
			resultCount += len(stored)
		}
		tree.Users[u.Identifier] = node
	}

	for _, t := range tests {
		node := testNode{Grade: t.Grade}
		if mc := t.FindPrevNext; mc != nil {
			node.MiniGameConfigs = map[string]miniGameNode{
				models.MiniGameKey: {
					MaxNumberRange:   mc.MaxNumberRange,
					MiniGameDuration: mc.MiniGameDuration,
					NumQuestions:     mc.NumQuestions,
					RequiredPercent:  mc.RequiredPercent,
				},
			}
		}
		tree.Tests[t.ID] = node
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(tree); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("export completed",
		zap.Int("users", len(users)),
		zap.Int("tests", len(tests)),
		zap.Int("results", resultCount))
	return nil
}

// ImportFromFile restores a backup file
func (s *BackupService) ImportFromFile(ctx context.Context, inputPath string, opts ImportOptions) (ImportStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return ImportStats{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.Import(ctx, file, opts)
}

// Import reads a JSON tree and upserts it in a single transaction. Numeric
// and string leaves are both accepted, as the realtime database stores either.
func (s *BackupService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (ImportStats, error) {
	var root map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return ImportStats{}, fmt.Errorf("failed to decode backup: %w", err)
	}

	var stats ImportStats
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		users := repository.NewUserRepository(tx)
		tests := repository.NewTestRepository(tx)
		results := repository.NewResultRepository(tx)

		if opts.Clear {
			if err := users.DeleteAll(ctx); err != nil {
				return err
			}
			if err := tests.DeleteAll(ctx); err != nil {
				return err
			}
		}

		if raw, ok := root["users"]; ok {
			if err := s.importUsers(ctx, raw, opts, users, results, &stats); err != nil {
				return fmt.Errorf("failed to import users: %w", err)
			}
		}
		if raw, ok := root["tests"]; ok {
			if err := s.importTests(ctx, raw, tests, &stats); err != nil {
				return fmt.Errorf("failed to import tests: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}

	s.log.Info("import completed",
		zap.Int("users", stats.Users),
		zap.Int("tests", stats.Tests),
		zap.Int("results", stats.Results),
		zap.Int("hashed_pins", stats.HashedPINs))
	return stats, nil
}

func (s *BackupService) importUsers(ctx context.Context, raw json.RawMessage, opts ImportOptions,
	users *repository.UserRepository, results *repository.ResultRepository, stats *ImportStats) error {

	keys, nodes, err := realtime.Children(raw)
	if err != nil {
		return err
	}

	for _, id := range keys {
		user, err := realtime.DecodeUser(id, nodes[id])
		if err != nil {
			return err
		}
		if opts.HashPINs && user.Password != "" && !security.IsHashed(user.Password) {
			hash, err := security.HashPIN(user.Password)
			if err != nil {
				return fmt.Errorf("failed to hash PIN for %s: %w", id, err)
			}
			user.Password = hash
			stats.HashedPINs++
		}
		if err := users.UpsertUser(ctx, *user); err != nil {
			return err
		}
		stats.Users++

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(nodes[id], &fields); err != nil {
			return err
		}
		resultRaw, ok := fields["results"]
		if !ok {
			continue
		}
		resultKeys, resultNodes, err := realtime.Children(resultRaw)
		if err != nil {
			return fmt.Errorf("results of %s: %w", id, err)
		}
		for _, key := range resultKeys {
			var rec models.ResultRecord
			if err := json.Unmarshal(resultNodes[key], &rec); err != nil {
				return fmt.Errorf("result %s of %s: %w", key, id, err)
			}
			if err := results.Insert(ctx, id, key, rec); err != nil {
				return err
			}
			stats.Results++
		}
	}
	return nil
}

func (s *BackupService) importTests(ctx context.Context, raw json.RawMessage, tests *repository.TestRepository, stats *ImportStats) error {
	keys, nodes, err := realtime.Children(raw)
	if err != nil {
		return err
	}

	for i, id := range keys {
		if err := tests.UpsertTest(ctx, i, realtime.DecodeTest(id, nodes[id])); err != nil {
			return err
		}
		stats.Tests++
	}
	return nil
}
