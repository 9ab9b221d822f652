package ndarray

import (
	"fmt"
	"strings"
)

// String renders the elements as nested brackets, one row per line.
func (c *core[T]) String() string {
	data, err := c.data()
	if err != nil {
		return "<released>"
	}
	var sb strings.Builder
	shape, strides := c.layout.Shape(), c.layout.Strides()
	c.format(&sb, data, shape, strides, c.layout.Offset(), 0)
	return sb.String()
}

func (c *core[T]) format(sb *strings.Builder, data []T, shape []int, strides []int, off, depth int) {
	if len(shape) == depth {
		fmt.Fprint(sb, data[off])
		return
	}
	sb.WriteByte('[')
	n := shape[depth]
	for i := range n {
		if i > 0 {
			if depth == len(shape)-1 {
				sb.WriteByte(' ')
			} else {
				// Blank lines between blocks of higher-rank arrays.
				sb.WriteString(strings.Repeat("\n", len(shape)-depth-1))
				sb.WriteString(strings.Repeat(" ", depth+1))
			}
		}
		c.format(sb, data, shape, strides, off+i*strides[depth], depth+1)
	}
	sb.WriteByte(']')
}
