// Package simhash computes locality-sensitive fingerprints of token
// sequences and compares them by Hamming distance.
//
// # Algorithm
//
//  1. Slide a window of NGram tokens over the sequence; each window is a feature.
//  2. Weight each distinct feature by how often it occurs in the document.
//  3. Hash each feature with SHA3-256 and keep the leading Bits bits.
//  4. For every bit position add the weight when the bit is set, subtract otherwise.
//  5. Bit i of the fingerprint is 1 when accumulator i is strictly positive.
//
// Two fingerprints are near-duplicates when their Hamming distance is at most
// a threshold. The relation is reflexive and symmetric but not transitive.
//
// A document shorter than NGram tokens has no features. Its fingerprint is
// Empty and Compute reports ok=false; callers treat such documents as never
// being a duplicate of anything.
package simhash
