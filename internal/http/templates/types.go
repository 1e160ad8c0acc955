// Package templates renders the server-side HTML views.
package templates

const siteName = "ScanGo"

// DemoPreviewData holds the values rendered on a demo page preview.
type DemoPreviewData struct {
	Title        string
	Type         string
	Description  string
	ContentHTML  string
	ProductImage string
	AudioURL     string
	QRCodeURL    string
	PublicURL    string
}

// MessagePageData holds the values of a plain status page.
type MessagePageData struct {
	StatusLabel string
	Message     string
}
