// Package extract classifies the entities of semantic models.
//
// [Extract] scans a list of semantic models and sorts every entity into one of
// six disjoint collections: classes, class profiles, relationships,
// relationship profiles, generalizations and attributes. An attribute is a
// relationship (or relationship profile) whose second end has no concept
// reference; it describes a property of its source class rather than a link
// between two classes.
//
// Extraction is pure and never fails. Entities with an unknown type tag are
// left out of every collection and reported in [Result.Unclassified].
package extract
