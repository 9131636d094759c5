package db

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// GCMEncryptor seals values with AES-GCM. The output is the base64 encoding of the random
// nonce followed by the ciphertext so that it can be stored as a plain string.
type GCMEncryptor struct {
	cipher cipher.AEAD
}

func (g GCMEncryptor) nonce() ([]byte, error) {
	nonce := make([]byte, g.cipher.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return []byte{}, err
	}
	return nonce, nil
}

func (g GCMEncryptor) Encrypt(val string) (string, error) {
	nonce, err := g.nonce()
	if err != nil {
		return "", err
	}
	res := g.cipher.Seal(nonce, nonce, []byte(val), nil)
	return base64.StdEncoding.EncodeToString(res), nil
}

func (g GCMEncryptor) Decrypt(val string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return "", err
	}
	nonceSize := g.cipher.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("encrypted value is too short")
	}
	res, err := g.cipher.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", err
	}
	return string(res), nil
}

func NewGCMEncryptor(secret string) (GCMEncryptor, error) {
	block, err := aes.NewCipher([]byte(secret))
	if err != nil {
		return GCMEncryptor{}, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return GCMEncryptor{}, err
	}
	return GCMEncryptor{aesgcm}, nil
}
