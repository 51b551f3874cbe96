package imagesrc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const defaultMaxBytes = 10 << 20

var (
	ErrUnsupportedRef = errors.New("unsupported image reference")
	ErrTooLarge       = errors.New("image too large")
	ErrNoStorage      = errors.New("gs:// references need a storage client")
)

type Image struct {
	Data     []byte
	MimeType string
}

// Fetcher resolves an opaque image reference to bytes. It understands
// data: URIs, http(s) URLs and gs://bucket/object paths.
type Fetcher struct {
	httpClient *http.Client
	gcs        *storage.Client
	maxBytes   int64
}

// New builds a Fetcher. A nil httpClient gets a client restricted to public
// addresses; a caller supplied client is used as is. gcs may be nil, in which
// case gs:// references fail with ErrNoStorage.
func New(httpClient *http.Client, gcs *storage.Client) *Fetcher {
	if httpClient == nil {
		httpClient = newPublicClient()
	}
	return &Fetcher{httpClient: httpClient, gcs: gcs, maxBytes: defaultMaxBytes}
}

// NewStorageClient opens a Cloud Storage client, using credentialsFile when
// set and application default credentials otherwise.
func NewStorageClient(ctx context.Context, credentialsFile string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return storage.NewClient(ctx, opts...)
}

func (f *Fetcher) SetMaxBytes(n int64) {
	if n > 0 {
		f.maxBytes = n
	}
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "data:"):
		return f.fromDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return f.fromHTTP(ctx, ref)
	case strings.HasPrefix(ref, "gs://"):
		return f.fromGCS(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRef, truncate(ref, 32))
	}
}

func (f *Fetcher) fromDataURI(ref string) (*Image, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: data URI must be base64", ErrUnsupportedRef)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > f.maxBytes+2 {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedRef, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return &Image{Data: data, MimeType: mimeOrSniff(strings.TrimSuffix(header, ";base64"), data)}, nil
}

func (f *Fetcher) fromHTTP(ctx context.Context, ref string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrBlockedAddress) {
			return nil, ErrBlockedAddress
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch status %d", resp.StatusCode)
	}
	data, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, MimeType: mimeOrSniff(resp.Header.Get("Content-Type"), data)}, nil
}

func (f *Fetcher) fromGCS(ctx context.Context, ref string) (*Image, error) {
	if f.gcs == nil {
		return nil, ErrNoStorage
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
		return nil, fmt.Errorf("%w: malformed gs reference", ErrUnsupportedRef)
	}
	r, err := f.gcs.Bucket(u.Host).Object(strings.TrimPrefix(u.Path, "/")).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := f.readLimited(r)
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, MimeType: mimeOrSniff(r.Attrs.ContentType, data)}, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func mimeOrSniff(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	return http.DetectContentType(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
