// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression decodes compressed inbound request bodies.

Sending access points may GZIP the HTTP body and announce it with a
Content-Encoding header:

	body, err := compression.NewReader(r.Body, r.Header.Get("Content-Encoding"))
	if err != nil {
	    return err
	}
	defer body.Close()

# References

  - GZIP RFC 1952: https://datatracker.ietf.org/doc/html/rfc1952
  - HTTP Content-Encoding: https://datatracker.ietf.org/doc/html/rfc9110#section-8.4
*/
package compression
