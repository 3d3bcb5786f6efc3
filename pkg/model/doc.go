// Package model defines the records exchanged with the collaborators of the
// layout engine: semantic models (classes, relationships, generalizations and
// their profiles) consumed as immutable snapshots, and visual models (per
// entity position, size, visibility) consumed as initial state and produced
// as the layout result.
//
// The types are plain data with JSON tags. Nothing here knows about graphs or
// layouts; see [github.com/matzehuels/modelgraph/pkg/extract] for the
// classification of entities and [github.com/matzehuels/modelgraph/pkg/diagram]
// for graph construction.
//
// # File format
//
// A models document lists semantic models in order:
//
//	{
//	  "models": [
//	    {"id": "vocab", "entities": {
//	      "person": {"id": "person", "type": "class"},
//	      "knows":  {"id": "knows", "type": "relationship",
//	                 "ends": [{"concept": "person"}, {"concept": "person"}]}
//	    }}
//	  ]
//	}
//
// A visual document maps entity identifiers to visual entities:
//
//	{"entities": {"person": {"visible": true, "position": {"x": 10, "y": 20}}}}
package model
