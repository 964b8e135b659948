package epubcards

import (
	"encoding/xml"
	"strings"
)

const (
	encryptionPath = "META-INF/encryption.xml"
	fairPlayPath   = "META-INF/sinf.xml"
)

// Font obfuscation is not DRM: the book stays readable.
var obfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true,
	"http://ns.adobe.com/pdf/enc#RC":     true,
}

type encryptionDoc struct {
	XMLName xml.Name `xml:"encryption"`
	Data    []struct {
		Method struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
	} `xml:"EncryptedData"`
}

// drmStatus inspects the encryption descriptors. It returns ErrDRMProtected
// for Apple FairPlay, for unreadable encryption.xml, and for any encrypted
// resource that is not an obfuscated font. obfuscated reports font
// obfuscation alone.
func drmStatus(a *archive) (obfuscated bool, err error) {
	if a.find(fairPlayPath) != nil {
		return false, ErrDRMProtected
	}
	if a.find(encryptionPath) == nil {
		return false, nil
	}

	data, err := a.read(encryptionPath)
	if err != nil {
		return false, err
	}
	var enc encryptionDoc
	if err := xml.Unmarshal(data, &enc); err != nil {
		return false, ErrDRMProtected
	}
	for _, d := range enc.Data {
		if !obfuscationAlgorithms[strings.TrimSpace(d.Method.Algorithm)] {
			return false, ErrDRMProtected
		}
		obfuscated = true
	}
	return obfuscated, nil
}
