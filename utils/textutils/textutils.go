// Copyright 2025 The Nearwork Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides text normalization helpers for keyword matching
// and display formatting.
package textutils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and
// trimming spaces. Keyword matching runs over folded text so that "Électricien"
// matches "electricien".
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// HTMLToText strips markup from a fragment, returning the text content with
// single spaces between nodes. Employers paste rich text into descriptions;
// search must not match against tag names or attributes.
func HTMLToText(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return fragment
	}

	n, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		// Unparseable markup: fall back to the raw text
		return fragment
	}

	var sb strings.Builder

	nodeText(n, &sb)

	return sb.String()
}

func nodeText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		tmp := strings.TrimSpace(n.Data)
		if len(tmp) > 0 {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}

		return
	}

	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		nodeText(child, sb)
	}
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}
