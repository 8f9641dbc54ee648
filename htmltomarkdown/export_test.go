package htmltomarkdown

var CollapseBlankLines = collapseBlankLines
