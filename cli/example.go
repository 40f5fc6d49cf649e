package cli

const exampleConfig = `log:
  level: debug

# Inline module definitions. Keys under params override the module type's
# default config.
modules:
  - name: greeter
    type: hello
    doc: Greets whoever is configured under params.
    params:
      name: example
  - name: toolbox
    type: hello
    mixins: [env, clock, files]

# Directories scanned for module manifests (.hcl, .yaml, .yml by default).
scan:
  - dir: ./modules
  - dir: /etc/buildeasy/modules
    extensions: [.hcl]
`
