// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const signedPrefix = "s:"

// sign produces "s:<value>.<mac>" where mac is the unpadded base64 HMAC-SHA256
// of value under secret.
func sign(value, secret string) string {
	return signedPrefix + value + "." + mac(value, secret)
}

// unsign returns the value embedded in a signed cookie, or false when the
// cookie is malformed or the signature does not match.
func unsign(signed, secret string) (string, bool) {
	rest, ok := strings.CutPrefix(signed, signedPrefix)
	if !ok {
		return "", false
	}
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return "", false
	}
	value, sig := rest[:dot], rest[dot+1:]
	if !hmac.Equal([]byte(sig), []byte(mac(value, secret))) {
		return "", false
	}
	return value, true
}

func mac(value, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(value))
	return base64.RawStdEncoding.EncodeToString(h.Sum(nil))
}
