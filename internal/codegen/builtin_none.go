package codegen

const noneName = "None"

// declareNonePrimitive registers None as a zero-data record. The synthetic
// none value is a null pointer, so its copy and free routines never touch
// the pointee.
func (g *Generator) declareNonePrimitive() error {
	return g.declarePrimitive(noneName, NoneID)
}

// setupNonePrimitive emits the no-op copy and free routines of None.
func (g *Generator) setupNonePrimitive() error {
	if err := g.buildNoopFreePtrFn(NoneID); err != nil {
		return err
	}
	return g.buildNoopCopyPtrFn(NoneID)
}
