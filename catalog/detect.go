package catalog

// Classifier decides whether a board's sounds can be fetched as files.
// The markup schema is expected to drift, so the classifier is a
// swappable strategy rather than a fixed rule.
type Classifier func(Markup) Availability

// downloadActionSelector matches the per-track download anchor present
// on boards whose owner has not disabled file downloads.
const downloadActionSelector = `a.btn-download-track[href^="/sb/sound/"]`

// DetectByDownloadAction classifies a board by the presence of a
// download action in its listing markup. Ambiguous or empty markup
// classifies as PlayOnly: a false negative is cheaper than repeated
// failed fetches against a board that cannot serve files.
func DetectByDownloadAction(m Markup) Availability {
	if m.Has(downloadActionSelector) {
		return Downloadable
	}
	return PlayOnly
}
