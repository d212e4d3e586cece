/*
Package wikitext converts between a structured document model and MediaWiki
markup ("wikitext").

A Document is an ordered list of records: plain text, template calls
({{Name|key=value}}) and parser function calls ({{#name:main|key=value}}).
A Codec renders documents into markup using a fixed set of formatting Settings,
and parses markup back into records. The parser is deliberately simple: it does
not support nested calls and closes every call at the first "}}" it finds.

Package level functions use a process-wide default Codec whose settings can be
changed with SetSettings. Hosts serving several callers at once should build
their own Codec with NewCodec instead.
*/
package wikitext
