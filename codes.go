/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
)

// Join codes are short enough to read off a screen or type on a phone,
// so the alphabet is limited to uppercase alphanumerics. Uniqueness is
// the store's problem; see SessionStore.create.
const codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newJoinCode generates a fixed-length pseudorandom join code, drawing
// uniformly from codeLetters via rejection sampling.
func newJoinCode(n int) string {
	const max = byte(255 - (256 % len(codeLetters)))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		for _, b := range buf {
			if b <= max {
				out = append(out, codeLetters[int(b)%len(codeLetters)])
				if len(out) == n {
					return string(out)
				}
			}
		}
	}
}
