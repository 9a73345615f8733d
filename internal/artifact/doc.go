// Package artifact renders named templates into files on disk.
//
// A [FileRenderer] maps template names to [Template] implementations and
// writes each result atomically: the output is staged in a temporary file
// next to the destination and renamed into place, so the consumer of the
// file sees either the previous or the new content.
//
// Three kinds of template are provided. [JSON] encodes one context value as
// an indented JSON document. [Text] executes a text/template. [Unit] builds
// systemd unit options and serializes them with go-systemd.
package artifact
