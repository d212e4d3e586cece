/*
Package pagestore keeps rendered wikitext pages and their revision history in
a SQLite database.

Pages are identified by title. Every save appends a revision; reads return the
latest one. Stored markup can be parsed back into records with the store's
wikitext codec, which makes the store a convenient staging area for bots that
assemble pages before publishing them.
*/
package pagestore
