// Package bind decodes HTTP request bodies.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

// maxBodyBytes returns the configured request body size limit (default 1 MB).
func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// JSON decodes r.Body into dest. An empty body leaves dest untouched so the
// caller's own presence checks report the missing fields. Malformed or
// oversized bodies yield a validation *apperr.Error.
func JSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("Request body too large (max %d bytes)", maxErr.Limit), err)
		}
		return apperr.Wrap(apperr.KindValidation, "Invalid JSON body", err)
	}
	return nil
}
