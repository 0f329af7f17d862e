package attachments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FSStore keeps objects on the local filesystem and signs download URLs
// with an HMAC so links expire. Deployments with real object storage swap
// in their own Store.
type FSStore struct {
	root    string
	baseURL string
	secret  []byte
}

func NewFSStore(root, baseURL, secret string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("attachments: fs root: %w", err)
	}
	return &FSStore{root: root, baseURL: strings.TrimRight(baseURL, "/"), secret: []byte(secret)}, nil
}

func (s *FSStore) Put(ctx context.Context, key string, contentType string, size int64, body io.Reader) error {
	dst := s.diskPath(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(body, size+1))
	if err != nil {
		return err
	}
	if n != size {
		os.Remove(dst)
		return fmt.Errorf("attachments: size mismatch: declared %d, read %d", size, n)
	}
	return nil
}

func (s *FSStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	exp := time.Now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(key, exp))
	return fmt.Sprintf("%s/%s?%s", s.baseURL, key, q.Encode()), nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.diskPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Handler serves signed blob downloads. Mount it under the path the base
// URL points at.
func (s *FSStore) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		exp, err := strconv.ParseInt(r.URL.Query().Get("exp"), 10, 64)
		if err != nil || time.Now().Unix() > exp {
			http.Error(w, "link expired", http.StatusForbidden)
			return
		}
		if !hmac.Equal([]byte(r.URL.Query().Get("sig")), []byte(s.sign(key, exp))) {
			http.Error(w, "bad signature", http.StatusForbidden)
			return
		}
		http.ServeFile(w, r, s.diskPath(key))
	})
}

func (s *FSStore) diskPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean(key)))
}

func (s *FSStore) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
