package req

import (
	"path/filepath"
	"strings"

	"github.com/xy-planning-network/trailhead"
)

// An UploadErr is the outcome of receiving one uploaded file.
// The values mirror the classic CGI upload error codes.
type UploadErr int

const (
	UploadOK        UploadErr = 0
	UploadIniSize   UploadErr = 1
	UploadFormSize  UploadErr = 2
	UploadPartial   UploadErr = 3
	UploadNoFile    UploadErr = 4
	UploadNoTmpDir  UploadErr = 6
	UploadCantWrite UploadErr = 7
	UploadExtension UploadErr = 8
)

func (e UploadErr) String() string {
	switch e {
	case UploadOK:
		return "ok"
	case UploadIniSize:
		return "file exceeds the maximum upload size"
	case UploadFormSize:
		return "file exceeds the maximum form size"
	case UploadPartial:
		return "file was only partially uploaded"
	case UploadNoFile:
		return "no file was uploaded"
	case UploadNoTmpDir:
		return "missing temporary directory"
	case UploadCantWrite:
		return "failed to write file"
	case UploadExtension:
		return "upload stopped by extension"
	default:
		return "unknown upload error"
	}
}

func (e UploadErr) Valid() error {
	switch e {
	case UploadOK, UploadIniSize, UploadFormSize, UploadPartial,
		UploadNoFile, UploadNoTmpDir, UploadCantWrite, UploadExtension:
		return nil
	default:
		return trailhead.ErrNotValid
	}
}

// An Upload describes one received file.
// The MIME type is whatever the client claimed and is not to be trusted.
type Upload struct {
	name     string
	mimeType string
	size     int64
	tempPath string
	err      UploadErr
}

func NewUpload(name, mimeType string, size int64, tempPath string, err UploadErr) Upload {
	return Upload{name: name, mimeType: mimeType, size: size, tempPath: tempPath, err: err}
}

// Name is the original client-side filename.
func (u Upload) Name() string { return u.name }

func (u Upload) MimeType() string { return u.mimeType }

func (u Upload) Size() int64 { return u.size }

// TempPath is where the received bytes were spooled.
func (u Upload) TempPath() string { return u.tempPath }

func (u Upload) Err() UploadErr { return u.err }

func (u Upload) IsValid() bool { return u.err == UploadOK }

// Extension returns the lower-cased extension of Name without the leading dot.
func (u Upload) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(u.name), "."))
}
