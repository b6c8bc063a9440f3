package cloud

var ObjectTag = objectTag
