package config

import "encoding/base64"

// obfuscationKey keys the XOR pass over persisted tokens.
const obfuscationKey = "quiver-console-key-v1"

// ObfuscateToken makes a token storage-safe with XOR+base64. This prevents
// casual exposure in the config file and nothing more; treat the persisted
// token as cleartext when reasoning about security.
func ObfuscateToken(token string) string {
	if token == "" {
		return ""
	}
	b := []byte(token)
	for i := range b {
		b[i] ^= obfuscationKey[i%len(obfuscationKey)]
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DeobfuscateToken reverses ObfuscateToken. Values that do not decode as
// base64 are returned unchanged; they are plain tokens from an older file.
func DeobfuscateToken(stored string) string {
	if stored == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return stored
	}
	for i := range b {
		b[i] ^= obfuscationKey[i%len(obfuscationKey)]
	}
	return string(b)
}
