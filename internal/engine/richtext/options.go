package richtext

// Option configures a Document.
type Option func(*Document)

// WithParagraphs seeds the document with one unformatted paragraph per
// string.
func WithParagraphs(texts ...string) Option {
	return func(d *Document) {
		if len(texts) == 0 {
			return
		}
		d.root.Blocks = d.root.Blocks[:0]
		for _, t := range texts {
			p := &Paragraph{}
			p.insertText(0, t, nil)
			d.root.Blocks = append(d.root.Blocks, p)
		}
	}
}

// WithDefaultListStyle sets the style used for lists restored without one.
func WithDefaultListStyle(name string) Option {
	return func(d *Document) {
		if name != "" {
			d.defaultListStyle = name
		}
	}
}
