package providers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

func statusError(provider string, resp *http.Response) error {
	if resp == nil {
		return fmt.Errorf("model: %s: empty http response", provider)
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	body := strings.TrimSpace(string(raw))
	if body == "" {
		return fmt.Errorf("model: %s: http status %d", provider, resp.StatusCode)
	}
	return fmt.Errorf("model: %s: http status %d body=%s", provider, resp.StatusCode, body)
}
