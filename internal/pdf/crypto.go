package pdf

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// aesKeyLength is the key size used for document encryption.
const aesKeyLength = 256

// Encrypt copies the PDF in rs to w with AES encryption. An empty owner
// password falls back to the user password.
func Encrypt(rs io.ReadSeeker, w io.Writer, userPW, ownerPW string) error {
	if ownerPW == "" {
		ownerPW = userPW
	}
	conf := model.NewAESConfiguration(userPW, ownerPW, aesKeyLength)
	if err := api.Encrypt(rs, w, conf); err != nil {
		return fmt.Errorf("encrypt document: %w", err)
	}
	return nil
}

// readConfig returns a pdfcpu configuration able to open documents protected
// with the given passwords.
func readConfig(userPW, ownerPW string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = userPW
	conf.OwnerPW = ownerPW
	return conf
}
