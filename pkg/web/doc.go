// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package web builds the HTTP client and requests used by checks that talk to a
device management API over HTTP(S), and performs one-shot requests against it.
*/
package web
