package codegen

import "strconv"

// namer hands out function-local value and block names, appending a counter
// on collision: addtmp, addtmp1, addtmp2.
type namer map[string]int

func (n namer) unique(base string) string {
	if _, taken := n[base]; !taken {
		n[base] = 1
		return base
	}
	for {
		name := base + strconv.Itoa(n[base])
		n[base]++
		if _, taken := n[name]; !taken {
			n[name] = 1
			return name
		}
	}
}
