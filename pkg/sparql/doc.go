/*
Package sparql turns SPARQL query results into wikitext template calls.

It understands the SPARQL 1.1 Query Results JSON Format, copies the value of
each binding into a template parameter map (optionally renaming and filtering
columns), and provides a small client for querying an endpoint such as the
Wikidata Query Service with response caching.
*/
package sparql
