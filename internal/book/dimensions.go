package book

import (
	"context"
	"fmt"
)

// FillDimensions decodes just enough of pageIndex's image bytes to
// measure its width and height, caches the result on the in-memory page
// record, and returns it. A page whose dimensions are already known
// returns them without touching the archive again.
func (b *Book) FillDimensions(ctx context.Context, pageIndex int) (width, height int, err error) {
	b.mu.RLock()
	if pageIndex < 0 || pageIndex >= len(b.info.Pages) {
		b.mu.RUnlock()
		return 0, 0, ErrNotFound
	}
	page := b.info.Pages[pageIndex]
	b.mu.RUnlock()

	if page.Width > 0 && page.Height > 0 {
		return page.Width, page.Height, nil
	}

	data, err := b.LoadImage(ctx, pageIndex)
	if err != nil {
		return 0, 0, err
	}

	dims, err := b.ac.Decoder.DecodeDimensions(data)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	b.mu.Lock()
	if pageIndex < len(b.info.Pages) {
		b.info.Pages[pageIndex].Width = dims.Width
		b.info.Pages[pageIndex].Height = dims.Height
	}
	b.mu.Unlock()

	return dims.Width, dims.Height, nil
}
