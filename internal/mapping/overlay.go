package mapping

// DefaultOverlay replaces JSR-305 annotations with their JetBrains
// equivalents so remapped sources compile against the annotations jar the
// toolchain ships.
var DefaultOverlay = []Pair{
	{From: "javax/annotation/Nullable", To: "org/jetbrains/annotations/Nullable"},
	{From: "javax/annotation/Nonnull", To: "org/jetbrains/annotations/NotNull"},
	{From: "javax/annotation/concurrent/Immutable", To: "org/jetbrains/annotations/Unmodifiable"},
}
