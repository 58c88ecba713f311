// Package pkg provides the libraries behind adjpack, a converter between
// text weighted edge lists and a compact binary adjacency format.
//
// # Overview
//
// An edge list line "a<TAB>b<TAB>w" describes an undirected edge between two
// uint32 node ids with a uint8 weight. adjpack stores every edge once, under
// its lower endpoint, in ascending key and neighbor order:
//
//	totalKeyCount uint32
//	per key:   key uint32, neighborCount uint32
//	per neighbor: neighbor uint32, weight uint8
//
// all little-endian with no padding.
//
// # Packages
//
//  1. [edgelist] - parsing and writing the text format
//  2. [adjacency] - canonical graph: normalization, first-wins dedup, ordering
//  3. [codec] - binary encoder and lazy decoder, legacy and framed layouts
//  4. [pipeline] - compress and decompress runs with caching and hooks
//  5. [cache] - null, file and redis result caches
//  6. [config] - TOML configuration
//  7. [render] - DOT and SVG views of a graph
//  8. [observability] - pipeline, cache and HTTP event hooks
//  9. [errors] - error codes shared by the CLI and the HTTP service
//
// # Data flow
//
//	text edge list
//	     ↓
//	[edgelist] Reader (strict or skip policy)
//	     ↓
//	[adjacency] Graph (lower endpoint as key, first weight wins)
//	     ↓
//	[codec] Encode
//	     ↓
//	binary adjacency file
//
// Decompression streams the other way: [codec] Decoder yields one record at
// a time and [edgelist] Writer prints it, without rebuilding a graph.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Compress(ctx, in, out, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	logger.Info("done", "keys", res.Stats.Keys, "edges", res.Stats.Edges)
package pkg
