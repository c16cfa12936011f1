package gallery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/alexballas/mediagrid/catalog"
)

const detailsWidth float32 = 280

// DetailFetcher resolves the metadata shown in the details panel.
// catalog.Source satisfies it.
type DetailFetcher interface {
	Detail(ctx context.Context, id string) (catalog.Detail, error)
}

type detailsPanel struct {
	text *widget.RichText
	card *widget.Card
	root *fyne.Container

	fetcher DetailFetcher
	deliver func(func())
	cancel  context.CancelFunc
	shown   string
}

func newDetailsPanel(deliver func(func())) *detailsPanel {
	d := &detailsPanel{
		text:    widget.NewRichText(),
		deliver: deliver,
	}
	d.text.Wrapping = fyne.TextWrapWord
	d.card = widget.NewCard("", "", container.NewVScroll(d.text))
	d.root = container.NewBorder(nil, nil, nil, container.NewGridWrap(fyne.NewSize(detailsWidth, 0), d.card))
	d.root.Hide()
	return d
}

// show fills the panel with item and, when a fetcher is set, its details.
func (d *detailsPanel) show(item catalog.Item) {
	d.stopFetch()
	d.shown = item.ID
	d.card.SetTitle(item.Name())
	d.render(item, nil)
	d.root.Show()
	d.root.Refresh()

	if d.fetcher == nil || item.ID == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	go func() {
		detail, err := d.fetcher.Detail(ctx, item.ID)
		d.deliver(func() {
			if ctx.Err() != nil || d.shown != item.ID {
				return
			}
			if err != nil {
				fyne.LogError("Unable to load details for "+item.ID, err)
				return
			}
			d.render(item, &detail)
		})
	}()
}

func (d *detailsPanel) hide() {
	d.stopFetch()
	d.shown = ""
	d.root.Hide()
}

func (d *detailsPanel) stopFetch() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *detailsPanel) render(item catalog.Item, detail *catalog.Detail) {
	d.text.ParseMarkdown(detailsMarkdown(item, detail))
}

func detailsMarkdown(item catalog.Item, detail *catalog.Detail) string {
	var b strings.Builder
	line := func(k, v string) {
		fmt.Fprintf(&b, "**%s:** %s\n\n", k, v)
	}

	line("Name", item.Name())
	if item.Width > 0 && item.Height > 0 {
		line("Dimensions", fmt.Sprintf("%d × %d", item.Width, item.Height))
	}
	kind := "Image"
	if item.Video {
		kind = "Video"
	}
	line("Type", kind)
	if item.Reviewed {
		line("Status", "Reviewed")
	} else if item.Discarded {
		line("Status", "Discarded")
	}
	if len(item.Tags) > 0 {
		line("Tags", strings.Join(item.Tags, ", "))
	}

	if detail == nil {
		return b.String()
	}
	if detail.Size > 0 {
		line("Size", formatSize(detail.Size))
	}
	if !detail.Modified.IsZero() {
		line("Modified", detail.Modified.Format(time.DateTime))
	}
	keys := make([]string, 0, len(detail.Extra))
	for k := range detail.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line(k, detail.Extra[k])
	}
	return b.String()
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
