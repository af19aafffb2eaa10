package core

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// MaxLotsPerBatch bounds how much work one request can enqueue.
	MaxLotsPerBatch = 1000

	// MaxImagesPerLot matches the upstream vision request limit.
	MaxImagesPerLot = 20
)

// ValidateRequest checks the structure of an incoming batch. A failing batch
// is rejected wholesale with no side effects; validation runs after signature
// verification, so these errors map to HTTP 400 rather than 401.
func ValidateRequest(req *BatchRequest) error {
	if req == nil {
		return fmt.Errorf("request cannot be nil")
	}
	if req.Version != Version {
		return fmt.Errorf("unsupported version %q, expected %q", req.Version, Version)
	}

	if len(req.Languages) == 0 {
		return fmt.Errorf("languages cannot be empty")
	}
	seenLangs := make(map[string]struct{}, len(req.Languages))
	for _, lang := range req.Languages {
		if strings.TrimSpace(lang) == "" {
			return fmt.Errorf("languages cannot contain empty codes")
		}
		if _, dup := seenLangs[lang]; dup {
			return fmt.Errorf("duplicate language %q", lang)
		}
		seenLangs[lang] = struct{}{}
	}

	if len(req.Lots) == 0 {
		return fmt.Errorf("lots cannot be empty")
	}
	if len(req.Lots) > MaxLotsPerBatch {
		return fmt.Errorf("too many lots: %d exceeds the limit of %d", len(req.Lots), MaxLotsPerBatch)
	}

	seenIDs := make(map[string]struct{}, len(req.Lots))
	for i, lot := range req.Lots {
		if err := validateLot(lot); err != nil {
			return fmt.Errorf("lot %d: %w", i, err)
		}
		id := strings.TrimSpace(lot.LotID)
		if _, dup := seenIDs[id]; dup {
			return fmt.Errorf("duplicate lot_id %q", id)
		}
		seenIDs[id] = struct{}{}
	}

	return nil
}

func validateLot(lot Lot) error {
	if strings.TrimSpace(lot.LotID) == "" {
		return fmt.Errorf("lot_id cannot be empty")
	}
	if err := validateHTTPURL(lot.Webhook); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if len(lot.Images) == 0 {
		return fmt.Errorf("images cannot be empty")
	}
	if len(lot.Images) > MaxImagesPerLot {
		return fmt.Errorf("too many images: %d exceeds the limit of %d", len(lot.Images), MaxImagesPerLot)
	}
	for i, img := range lot.Images {
		if err := validateHTTPURL(img.URL); err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q must be absolute", raw)
	}
	return nil
}
