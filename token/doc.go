// Package token inspects bearer tokens on the client side: unverified claims
// decoding, expiry checks, and refresh-ahead thresholding. Signature
// verification is deliberately out of scope — the issuing server owns it.
package token
