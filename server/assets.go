package server

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sectornet/commander-server/game"
)

const assetMaxBytes = 12 * 1024 * 1024

func init() {
	registerHandlers(map[string]HandlerFunc{
		"sync_assets": handleSyncAssets,
	})
}

// assetFile is one add-or-replace entry in a sync response.
type assetFile struct {
	Path    string `json:"path"`
	SHA256  string `json:"sha256"`
	Content string `json:"content"`
}

// assetPathOK rejects anything that could escape the assets tree.
func assetPathOK(rel string) bool {
	if rel == "" || strings.Contains(rel, "..") || strings.HasPrefix(rel, "/") {
		return false
	}
	return filepath.IsLocal(rel)
}

// serverAssetManifest walks the assets directory and hashes every file
// at or under the size cap.
func (s *Server) serverAssetManifest() (map[string]string, error) {
	manifest := make(map[string]string)
	root := s.cfg.AssetsDir
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > assetMaxBytes {
			s.log.Warn().Str("asset", path).Int64("bytes", info.Size()).Msg("asset over size cap, skipped")
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !assetPathOK(rel) {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(raw)
		manifest[rel] = hex.EncodeToString(sum[:])
		return nil
	})
	if os.IsNotExist(err) {
		return manifest, nil
	}
	return manifest, err
}

// handleSyncAssets diffs the client's asset inventory against the
// server's and returns the files to add or replace (base64 content),
// the files to delete, and the authoritative manifest.
func handleSyncAssets(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	clientManifest := make(map[string]string)
	if raw, exists := params["manifest"].(map[string]any); exists {
		for rel, sum := range raw {
			if !assetPathOK(rel) {
				return errResp("INVALID_ASSET_PATH")
			}
			if str, isStr := sum.(string); isStr {
				clientManifest[filepath.ToSlash(rel)] = str
			}
		}
	}

	serverManifest, err := s.serverAssetManifest()
	if err != nil {
		s.log.Error().Err(err).Msg("asset manifest walk failed")
		return errResp("ASSET_SYNC_FAILED")
	}

	var updates []assetFile
	for rel, sum := range serverManifest {
		if clientManifest[rel] == sum {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.cfg.AssetsDir, filepath.FromSlash(rel)))
		if err != nil {
			s.log.Warn().Err(err).Str("asset", rel).Msg("asset unreadable, skipped")
			continue
		}
		updates = append(updates, assetFile{
			Path:    rel,
			SHA256:  sum,
			Content: base64.StdEncoding.EncodeToString(raw),
		})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Path < updates[j].Path })

	var deletes []string
	for rel := range clientManifest {
		if _, held := serverManifest[rel]; !held {
			deletes = append(deletes, rel)
		}
	}
	sort.Strings(deletes)

	return ok(Response{
		"updates":  updates,
		"deletes":  deletes,
		"manifest": serverManifest,
	})
}
