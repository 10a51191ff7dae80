package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const maxRemoteImage = 20 << 20

// Loader fetches the bytes behind an image reference.
type Loader func(ctx context.Context, uri string) ([]byte, error)

// DefaultLoader understands data URIs, http(s) URLs and local paths.
func DefaultLoader(client *http.Client) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, uri string) ([]byte, error) {
		switch {
		case strings.HasPrefix(uri, "data:"):
			return decodeDataURI(uri)
		case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 400 {
				return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
			}
			return io.ReadAll(io.LimitReader(resp.Body, maxRemoteImage))
		default:
			return os.ReadFile(uri)
		}
	}
}

func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 || !strings.HasSuffix(uri[:comma], ";base64") {
		return nil, fmt.Errorf("unsupported data URI")
	}
	return base64.StdEncoding.DecodeString(uri[comma+1:])
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
