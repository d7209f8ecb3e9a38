package constants

// Folder names under the data root.
const (
	UploadsDir     = "uploads"
	ScreenshotsDir = "screenshots"
	OutputsDir     = "outputs"
)

// PageImagePattern names rasterized pages so lexicographic order equals page order.
const PageImagePattern = "page_%03d.png"

const (
	TextOutputExt  = ".json"
	TableOutputExt = ".xlsx"
)

// MaxUploadBytesDefault mirrors the 16 MiB request cap of the upload endpoint.
const MaxUploadBytesDefault = 16 << 20
