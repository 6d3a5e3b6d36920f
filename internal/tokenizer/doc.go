// Package tokenizer turns text into lower-cased ASCII alphanumeric tokens
// and reduces token sequences to frequency tables.
//
// A token is a maximal run of the bytes [A-Za-z0-9]. Every other byte,
// including every byte of a multi-byte UTF-8 sequence, ends the current
// token and is dropped. Input is consumed in bounded chunks so documents
// never need to be held in memory as a whole.
//
// # Usage
//
//	tokens, err := tokenizer.Tokenize(file)
//	freqs := tokenizer.ComputeWordFrequencies(tokens)
//	for _, wc := range tokenizer.Sorted(freqs) {
//	    fmt.Println(wc.Word, wc.Count)
//	}
package tokenizer
