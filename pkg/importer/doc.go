/*
Package importer turns document descriptor files into wikitext.

A descriptor is a YAML or JSON file holding a document in its collection form:
a list whose entries are plain strings, {template, params} objects or
{function, main, params} objects. The Importer renders each descriptor with a
wikitext Codec and hands the markup to a Sink, such as a directory of .wiki
files or a page store. Watch keeps a source directory in sync by re-importing
descriptors whenever they change.
*/
package importer
