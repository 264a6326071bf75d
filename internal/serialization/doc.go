// Package serialization implements the .glnt checkpoint format.
//
// File layout:
//
//	0x00-0x03  magic "GLNT"
//	0x04-0x07  format version (uint32 LE)
//	0x08-0x0B  flags (uint32 LE)
//	0x0C-0x0F  reserved
//	0x10-0x17  JSON header size (uint64 LE)
//	0x18-0x1F  tensor data size (uint64 LE)
//	0x20-0x3F  SHA-256 checksum of the tensor data section
//	0x40-...   JSON header (tensor metadata, model type, created-at)
//	...        zero padding to a 64-byte boundary
//	...        tensor data, concatenated in header order
//
// Tensor data is aligned to 64 bytes so readers can map it directly.
// Float32 tensors may optionally be stored in half precision
// (x448/float16); they are upcast back to float32 on read.
package serialization
